package training_test

import (
	"context"
	"fmt"
	"time"

	"mmmcli/internal/estimator"
	"mmmcli/internal/frame"
	"mmmcli/internal/sweep"
	"mmmcli/internal/training"
	"mmmcli/internal/transform"
)

func ExampleTrainer_Run() {
	const n = 24
	dates := make([]time.Time, n)
	tv := make([]float64, n)
	price := make([]float64, n)
	volume := make([]float64, n)
	for i := range n {
		dates[i] = time.Date(2023, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC)
		tv[i] = float64(40 + (i*29)%70)
		price[i] = 3 + float64(i%5)*0.2
		volume[i] = 800 + 1.5*tv[i] - 90*price[i]
	}

	f, _ := frame.FromColumns(map[string][]float64{"tv": tv, "price": price, "volume": volume}, nil)
	_ = f.SetDates("date", dates)

	run, err := training.New(training.DefaultOptions(), nil).Run(context.Background(), training.Request{
		Frame:  f,
		Target: "volume",
		Variables: []sweep.VariableConfig{
			{Name: "tv", Role: transform.RoleMedia, Decays: []float64{0.3, 0.6}, Growths: []float64{1}, Midpoints: []float64{0}},
			{Name: "price", Role: transform.RoleStandardize},
		},
		Models: []training.ModelSpec{
			{Name: "ols", Kind: training.KindLinear, Constraints: estimator.Constraints{Negative: []string{"price"}}},
		},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("combinations:", run.Combinations)
	fmt.Println("records:", len(run.Records))
	for _, rec := range run.Records {
		fmt.Printf("%d %s price<=0:%v\n", rec.ParameterCombination.Index(), rec.ModelName, rec.Coefficients["price"].Value() <= 0)
	}
	// Output:
	// combinations: 2
	// records: 2
	// 0 ols price<=0:true
	// 1 ols price<=0:true
}
