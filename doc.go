// Package kbingest builds vector collections from a directory of plain-text
// knowledge documents.
//
// A KnowledgeBase opens the vector store and embedding client described by
// a config.Config and hands out ingestion pipelines and searchers bound to
// them:
//
//	cfg, err := config.Load("kbingest.yaml")
//	kb, err := kbingest.Open(ctx, &cfg)
//	defer kb.Close()
//
//	pipeline, err := kb.NewIngestionPipeline()
//	summary, err := pipeline.Run(ctx, cfg.Source, cfg.Collection)
//
// The building blocks live in their own packages: textclean, loader,
// chunking, embedding, ingestion, storage and search.
package kbingest
