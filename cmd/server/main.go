package main

import (
	"net"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/htxzdfunny/drawful-web/internal/config"
	"github.com/htxzdfunny/drawful-web/internal/game"
	"github.com/htxzdfunny/drawful-web/internal/httpapi"
	"github.com/htxzdfunny/drawful-web/internal/logger"
	"github.com/htxzdfunny/drawful-web/internal/realtime"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Server.LogLevel)

	words := game.NewWordBank()
	hub := realtime.NewHub()

	opts := game.DefaultOptions()
	opts.RoundDurationSec = cfg.Game.RoundDurationSec
	opts.WordChoicesCount = cfg.Game.WordChoicesCount
	opts.ChooseDuration = cfg.Game.ChooseDuration
	opts.RevealDuration = cfg.Game.RevealDuration

	reg := game.NewRegistry(opts, words, hub, game.NewTickerGen())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) == 1 && cfg.Server.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Evil-Token")
	router.Use(cors.New(corsConfig))

	httpapi.NewHandler(reg, words, cfg.Evil.Token).Register(router.Group("/api"))

	ws := realtime.NewServer(reg, hub)
	router.GET("/ws", ws.HandleWS)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
