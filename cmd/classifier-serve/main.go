// Command classifier-serve answers prediction requests with a network saved
// by the classifier command.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/fumitoshi0524/exprnet/classifier"
	"github.com/fumitoshi0524/exprnet/serve"
)

func main() {
	model := flag.String("model", "", "checkpoint written by classifier --save_model")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	if *model == "" {
		log.Fatalf("--model is required")
	}
	net, err := classifier.LoadNetwork(*model)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}
	fmt.Printf("serving %s (%d input genes) on %s\n", *model, classifier.InputDim(net), *addr)
	if err := serve.New(net).App().Listen(*addr); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
