// Package config loads kbingest settings from a YAML file.
//
// Values of the form ${VAR} or ${VAR:-default} are expanded from the
// environment before parsing, and a .env file in the working directory is
// loaded first when present. Fields left empty are filled by ApplyDefaults.
//
// Example file:
//
//	source: ./knowledge_base
//	collection: iphone17_knowledge
//	embedding:
//	  provider: ollama
//	  host: ${OLLAMA_HOST:-http://localhost:11434}
//	  model: nomic-embed-text:latest
//	store:
//	  driver: badger
//	  path: ./vectordb
package config
