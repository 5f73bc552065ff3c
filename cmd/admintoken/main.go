// Command admintoken mints a bearer token for the admin API.
package main

import (
	"flag"
	"fmt"
	"log"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/infra/web"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	subject := flag.String("sub", "operator", "token subject, usually the operator's name")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	tok, err := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL).Mint(*subject)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(tok)
}
