package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vectab"
)

func main() {
	ctx := context.Background()

	conn, err := vectab.Connect("./data")
	if err != nil {
		log.Fatal(err)
	}

	tbl, err := conn.CreateTable(ctx, "articles", vectab.Rows{
		{"id": int64(1), "title": "intro to go", "vector": []float32{0.1, 0.9}},
		{"id": int64(2), "title": "vector search", "vector": []float32{0.8, 0.2}},
		{"id": int64(3), "title": "columnar storage", "vector": []float32{0.7, 0.3}},
	}, nil, func(o *vectab.CreateTableOptions) {
		o.Mode = vectab.CreateModeOverwrite
	})
	if err != nil {
		log.Fatal(err)
	}

	count, err := tbl.Add(ctx, vectab.Rows{
		{"id": int64(4), "title": "embedding pipelines", "vector": []float32{0.75, 0.25}},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("rows:", count)

	results, err := tbl.MustSearch([]float32{0.8, 0.2}).
		Limit(3).
		Metric(vectab.MetricCosine).
		Execute(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		fmt.Printf("%v  %s  (distance %.4f)\n", r.Row["id"], r.Row["title"], r.Distance)
	}
}
