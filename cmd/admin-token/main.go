// Package main 签发管理端访问令牌，用于调用刷新选项缓存等管理接口
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/MorseWayne/shoe_catalog/internal/config"
	"github.com/MorseWayne/shoe_catalog/internal/logger"
	"github.com/MorseWayne/shoe_catalog/internal/service"
)

func main() {
	var (
		subject = flag.String("subject", "", "Token subject, e.g. the operator name")
		ttl     = flag.Duration("ttl", 0, "Token lifetime (defaults to JWT_ACCESS_TOKEN_TTL)")
	)
	flag.Parse()

	if *subject == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -subject=<name> [-ttl=1h]\n", os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *ttl > 0 {
		cfg.JWT.AccessTokenTTL = *ttl
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, "admin-token", cfg.App.Version)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer lg.Sync()

	token, expiresAt, err := service.NewJWTService(cfg.JWT, lg).GenerateAdminToken(*subject)
	if err != nil {
		lg.Sugar().Fatalw("failed to generate admin token", "error", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}
