package main

import (
	"os"

	"github.com/alibaba/HybridBackend/srcs/go/cmd/hb-run/app"
)

func main() { app.Main(os.Args) }
