package main

import (
	"flag"
	"log"
	"net/http"

	"hervor/internal/mockapi"
)

func main() {
	addr := flag.String("addr", ":8081", "Listen address")
	flag.Parse()

	log.Printf("apimock listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mockapi.New().Handler()))
}
