// Command seed_catalog loads products from a YAML file into the catalog.
//
//	products:
//	  - name: Followers 1k
//	    description: "followers delivered to a public profile"
//	    price: "9.99"
//	    category: platformA
//	    sub_category: followers
//	    min_quantity: 1
//	    max_quantity: 20
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/boostcart-backend/internal/app"
	"github.com/yungbote/boostcart-backend/internal/services"
)

type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Category    string `yaml:"category"`
	SubCategory string `yaml:"sub_category"`
	MinQuantity int    `yaml:"min_quantity"`
	MaxQuantity int    `yaml:"max_quantity"`
	Inactive    bool   `yaml:"inactive"`
}

func (p seedProduct) input() (services.ProductInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(p.Price))
	if err != nil {
		return services.ProductInput{}, fmt.Errorf("product %q: invalid price %q", p.Name, p.Price)
	}
	active := !p.Inactive
	return services.ProductInput{
		Name:        &p.Name,
		Description: &p.Description,
		Price:       &price,
		Category:    &p.Category,
		SubCategory: &p.SubCategory,
		MinQuantity: &p.MinQuantity,
		MaxQuantity: &p.MaxQuantity,
		Active:      &active,
	}, nil
}

func main() {
	path := flag.String("file", "cmd/seed_catalog/catalog.yaml", "catalog seed file")
	dryRun := flag.Bool("dry-run", false, "parse and validate the file without writing")
	flag.Parse()

	raw, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read seed file: %v\n", err)
		os.Exit(1)
	}
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "parse seed file: %v\n", err)
		os.Exit(1)
	}
	inputs := make([]services.ProductInput, 0, len(seed.Products))
	for _, p := range seed.Products {
		in, err := p.input()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		inputs = append(inputs, in)
	}
	if *dryRun {
		fmt.Printf("%d products parsed\n", len(inputs))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	created := 0
	for i, in := range inputs {
		p, err := a.Services.Catalog.Create(ctx, in)
		if err != nil {
			a.Log.Error("seed product rejected", "index", i, "name", *in.Name, "error", err)
			continue
		}
		created++
		a.Log.Info("seeded product", "product_id", p.ID, "name", p.Name)
	}
	a.Log.Info("catalog seed finished", "created", created, "total", len(inputs))
}
