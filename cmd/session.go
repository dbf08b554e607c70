/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/forensicanalysis/cloudforensics"
	"github.com/forensicanalysis/cloudforensics/config"
	"github.com/forensicanalysis/cloudforensics/gcp"
	"github.com/forensicanalysis/cloudforensics/logger"
)

// options are the persistent flags of the gcp command.
type options struct {
	configFile string
	flags      config.Config
}

func (o *options) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "yaml config file")
	flags.StringVarP(&o.flags.Project, "project", "p", "", "project id")
	flags.StringVar(&o.flags.KeyFile, "key-file", "", "service account key file")
	flags.BoolVar(&o.flags.SearchAll, "search-all", false, "search all active projects")
	flags.StringVarP(&o.flags.OutputDir, "output-dir", "o", "", "directory for result files")
	flags.StringVar(&o.flags.Store, "store", "", "insert results into this evidence store")
	flags.StringVar(&o.flags.LogLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&o.flags.LogFormat, "log-format", "", "text or json")
	flags.StringVar(&o.flags.Endpoint, "endpoint", "", "api endpoint")
	flags.BoolVar(&o.flags.NoAuth, "no-auth", false, "do not authenticate requests")
	_ = flags.MarkHidden("endpoint")
	_ = flags.MarkHidden("no-auth")
}

// load reads the config and overrides it with all flags set on cmd.
func (o *options) load(cmd *cobra.Command, fs afero.Fs) (*config.Config, error) {
	cfg, err := config.Load(fs, o.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := map[string]func(){
		"project":    func() { cfg.Project = o.flags.Project },
		"key-file":   func() { cfg.KeyFile = o.flags.KeyFile },
		"search-all": func() { cfg.SearchAll = o.flags.SearchAll },
		"output-dir": func() { cfg.OutputDir = o.flags.OutputDir },
		"store":      func() { cfg.Store = o.flags.Store },
		"log-level":  func() { cfg.LogLevel = o.flags.LogLevel },
		"log-format": func() { cfg.LogFormat = o.flags.LogFormat },
		"endpoint":   func() { cfg.Endpoint = o.flags.Endpoint },
		"no-auth":    func() { cfg.NoAuth = o.flags.NoAuth },
	}
	for name, override := range overrides {
		if flags.Changed(name) {
			override()
		}
	}
	return cfg, nil
}

// session bundles everything a subcommand needs: the loaded config, the api
// client and the optional evidence store.
type session struct {
	cfg    *config.Config
	fs     afero.Fs
	out    io.Writer
	logger *slog.Logger
	client *gcp.Client
	store  *cloudforensics.Store
}

// session connects to the apis. Scoped sessions need a project or
// --search-all, which is checked before connecting.
func (o *options) session(cmd *cobra.Command, scoped bool) (*session, error) {
	fs := afero.NewOsFs()
	cfg, err := o.load(cmd, fs)
	if err != nil {
		return nil, err
	}
	if scoped && !cfg.SearchAll && cfg.Project == "" {
		return nil, errors.New("requires --project or --search-all")
	}

	log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	opts := gcp.CredentialOptions(cfg.KeyFile, cfg.Endpoint)
	if cfg.NoAuth {
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := gcp.Connect(cmd.Context(), opts...)
	if err != nil {
		return nil, err
	}
	client.SetLogger(log)

	s := &session{cfg: cfg, fs: fs, out: cmd.OutOrStdout(), logger: log, client: client}
	if cfg.Store != "" {
		s.store, err = openStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		s.store.SetLogger(log)
	}
	return s, nil
}

func (s *session) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *session) scope() gcp.Scope {
	if s.cfg.SearchAll {
		return gcp.AllProjects()
	}
	return gcp.SingleProject(s.cfg.Project)
}

// projectIDs resolves the projects for apis that work on a single project.
func (s *session) projectIDs(ctx context.Context) ([]string, error) {
	if s.cfg.SearchAll {
		return s.client.ActiveProjectIDs(ctx)
	}
	return []string{s.cfg.Project}, nil
}

// record inserts structs as elements of elementType, if a store is used.
func (s *session) record(elementType string, elements ...interface{}) error {
	if s.store == nil || len(elements) == 0 {
		return nil
	}
	ids, err := s.store.InsertStructBatch(elementType, elements)
	if err != nil {
		return errors.Wrapf(err, "could not store %s", elementType)
	}
	s.logger.Debug("stored elements", "type", elementType, "count", len(ids))
	return nil
}

func (s *session) recordRaw(elementType string, raw []byte) error {
	if s.store == nil {
		return nil
	}
	element, err := cloudforensics.NewJSONElement(elementType, raw)
	if err != nil {
		return err
	}
	_, err = s.store.Insert(element)
	return errors.Wrapf(err, "could not store %s", elementType)
}

func (s *session) print(v interface{}) error {
	return printJSON(s.out, v)
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// openStore opens the evidence store at url and creates it if it does not
// exist yet.
func openStore(url string) (*cloudforensics.Store, error) {
	if _, err := os.Stat(url); os.IsNotExist(err) {
		return cloudforensics.New(url)
	}
	return cloudforensics.Open(url)
}
