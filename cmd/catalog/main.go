// Command catalog prints the products the bot would offer, with their
// price-book price and current stock. Useful to check backend credentials.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/infra/adapters/commerce"
	red "telegram-fish-shop/internal/infra/redis"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	logger := zerolog.Nop()
	httpClient := &http.Client{Timeout: cfg.Commerce.Timeout}
	tokens := commerce.NewTokenCache(cfg.Commerce, red.NewCredentialStore(redisClient), httpClient, &logger)
	client, err := commerce.NewClient(cfg.Commerce, tokens, httpClient, &logger)
	if err != nil {
		log.Fatalf("commerce: %v", err)
	}

	products, err := client.ListProducts(ctx)
	if err != nil {
		log.Fatalf("list products: %v", err)
	}
	prices, err := client.ListPriceBook(ctx)
	if err != nil {
		log.Fatalf("price book: %v", err)
	}

	fmt.Printf("%d products in the catalog\n", len(products))
	for _, p := range products {
		price := "no price"
		if v, ok := prices[p.SKU]; ok {
			price = v.StringFixed(2) + " " + cfg.Commerce.Currency
		}
		var stock string
		if n, err := client.GetStock(ctx, p.ID); err == nil {
			stock = humanize.Comma(int64(n))
		} else {
			stock = "error: " + err.Error()
		}
		fmt.Printf("  - %s [%s] %s, stock %s\n", p.Name, p.SKU, price, stock)
	}
}
