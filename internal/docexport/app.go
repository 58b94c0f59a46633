package docexport

import (
	"github.com/openrag/ragserver/pkg/app"
)

const description = `docexport converts every supported document in a directory
(PDF, DOCX, Markdown, HTML, CSV, plain text) into markdown, JSON, YAML,
and chunked text files for inspection or offline processing.`

// NewApp creates the docexport application.
func NewApp() *app.App {
	opts := NewOptions()

	return app.NewApp(
		app.WithName("docexport"),
		app.WithShortDescription("Batch document conversion tool"),
		app.WithDescription(description),
		app.WithOptions(opts),
		app.WithNoConfig(),
		app.WithRunFunc(func(args []string) error {
			if err := opts.Log.Init(); err != nil {
				return err
			}
			return NewExporter(opts).Run()
		}),
	)
}
