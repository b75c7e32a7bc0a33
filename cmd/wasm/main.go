//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"qualrag/internal/adapter/corpus"
	"qualrag/internal/adapter/embedding"
	"qualrag/internal/adapter/memstore"
	"qualrag/internal/adapter/store"
	"qualrag/internal/domain"
	"qualrag/internal/usecase"
)

var engine *usecase.Engine

func init() {
	engine = usecase.NewEngine(
		corpus.NewSource(),
		embedding.NewLocal(embedding.DefaultDimension, true),
		store.NewVectorIndex(memstore.NewMemoryBackend()),
	)
}

func main() {
	c := make(chan struct{})

	// Build before exposing the functions so no JS callback waits on the pool.
	engine.EnsureReady(context.Background())

	js.Global().Set("qualragSearch", js.FuncOf(search))
	js.Global().Set("qualragStatus", js.FuncOf(status))

	<-c
}

// search(query, [topK], [category]) returns {"results": [...]} as JSON.
func search(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: qualragSearch(query, [topK], [category])")
	}

	req := domain.SearchRequest{Query: args[0].String(), TopK: 5}
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		req.TopK = args[1].Int()
	}
	if len(args) > 2 && args[2].Type() == js.TypeString && args[2].String() != "" {
		cat, err := domain.ParseCategory(args[2].String())
		if err != nil {
			return makeError(err.Error())
		}
		req.Category = cat
	}

	results, err := engine.Search(context.Background(), req)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]interface{}{
		"results": results,
		"query":   req.Query,
	})
}

func status(this js.Value, args []js.Value) interface{} {
	engine.EnsureReady(context.Background())
	return makeResult(engine.Status())
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
