package apiserver

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/logger"

	"github.com/openrag/ragserver/pkg/app"
)

// Name is the service name used for logging and identification.
const Name = "rag-apiserver"

const description = `The RAG API server ingests documents into a vector store and
answers similarity search queries over the stored chunks.

It exposes HTTP endpoints for uploading documents, searching, and
inspecting collection statistics.`

// NewApp creates the rag-apiserver application.
func NewApp() *app.App {
	opts := NewServerOptions()

	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("RAG document ingestion and retrieval server"),
		app.WithDescription(description),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *ServerOptions) app.RunFunc {
	return func(args []string) error {
		ctx := setupSignalContext()

		server, err := NewServer(ctx, opts)
		if err != nil {
			return err
		}

		return server.Run(ctx)
	}
}

// setupSignalContext 返回在收到 SIGINT/SIGTERM 时取消的上下文。
// 第二次信号直接强制退出。
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-ch
		logger.Infow("Received signal, shutting down", "signal", sig.String())
		cancel()
		<-ch
		os.Exit(1)
	}()

	return ctx
}
