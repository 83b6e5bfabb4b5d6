package compiler

import (
	"slices"

	"github.com/perfgo/compilebench/model"
	"github.com/rs/zerolog"
)

// HostClasspathFlag tells scalac to also use the classpath of the JVM running it.
const HostClasspathFlag = "-usejavacp"

// Options returns the compiler options for md. When useHostClasspath is set
// HostClasspathFlag is appended after the original options unless already
// present. The result never shares its backing array with md.Options.
func Options(md model.Metadata, useHostClasspath bool) []string {
	opts := slices.Clone(md.Options)
	if useHostClasspath && !slices.Contains(opts, HostClasspathFlag) {
		opts = append(opts, HostClasspathFlag)
	}
	return opts
}

// Provision configures a single compiler instance for md writing class files
// to outputDir. A nil callback or reporter is replaced by a Collector or a
// LenientReporter discarding its log output.
func Provision(p Provider, md model.Metadata, outputDir string, useHostClasspath bool, cb Callback, rep Reporter) Handle {
	return p.Configure(withDefaults(Config{
		Options:   Options(md, useHostClasspath),
		Classpath: md.Classpath,
		OutputDir: outputDir,
		Callback:  cb,
		Reporter:  rep,
	}))
}

// withDefaults fills in a missing Callback or Reporter.
func withDefaults(cfg Config) Config {
	if cfg.Callback == nil {
		cfg.Callback = NewCollector()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NewLenientReporter(zerolog.Nop())
	}
	return cfg
}
