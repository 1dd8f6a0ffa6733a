package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/adaptive-scale/docmine/pkg/analyzer"
	"github.com/adaptive-scale/docmine/pkg/cache"
	"github.com/adaptive-scale/docmine/pkg/export"
	"github.com/adaptive-scale/docmine/pkg/extractor"
	"github.com/adaptive-scale/docmine/pkg/rag"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	logLevel := getEnvWithDefault("LOG_LEVEL", "info")
	if level, err := log.ParseLevel(logLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func main() {
	log.Info("starting docmine-server")

	dataDir := getEnvWithDefault("DOCMINE_DATA_DIR", "/tmp/docmine-data")
	host := getEnvWithDefault("HOST", "127.0.0.1")
	port := getEnvIntWithDefault("PORT", 8420)

	parsedCache, err := cache.New(dataDir + "/cache")
	if err != nil {
		log.WithError(err).Fatal("failed to initialize parsed-result cache")
	}
	a := analyzer.New()
	exporter, err := export.New(dataDir+"/exports", a)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize exporter")
	}
	index := rag.New(nil)
	index.PersistPath = dataDir + "/rag-index.json"
	if err := index.Load(); err != nil {
		log.WithError(err).Warn("failed to load RAG index, starting empty")
	}

	srv := &server{
		files:      newFileStore(),
		extractor:  extractor.New(),
		cache:      parsedCache,
		analyzer:   a,
		exporter:   exporter,
		index:      index,
		datasetIDs: make(map[string]string),
	}

	mux := http.NewServeMux()
	srv.registerRoutes(mux)

	addr := fmt.Sprintf("%s:%d", host, port)
	log.WithFields(log.Fields{"address": addr, "pid": os.Getpid(), "data_dir": dataDir}).Info("server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}
