// Package services connects the training core to its inputs and outputs.
//
// TrainingService reads a YAML job, loads the input frame through a
// FrameSource, merges create-column definitions kept by a TransformStore,
// runs the trainer and persists the run through a RecordStore. Each
// collaborator is an interface with a filesystem implementation rooted at
// config.Paths:
//
//	FileFrameSource     data/<file> or data/<scope>.csv (CSV or XLSX)
//	JSONRecordStore     data/runs/<id>/run.json and records.json
//	YAMLTransformStore  data/transforms/<scope>.yaml
//
// The run directory also keeps the job file, so stored runs can have their
// elasticities recomputed later without refitting:
//
//	svc := services.NewTrainingService(trainer, paths, logger)
//	run, err := svc.Train(ctx, job)
//	...
//	results, err := svc.RecomputeElasticities(ctx, run.ID, nil)
package services
