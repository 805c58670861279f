// Package app assembles the engine and its collaborators from a loaded
// configuration. Both the CLI and the HTTP server start here.
package app

import (
	"github.com/iwvelando/household-tax/internal/config"
	"github.com/iwvelando/household-tax/internal/engine"
	"github.com/iwvelando/household-tax/pkg/advisory"
	"github.com/iwvelando/household-tax/pkg/classifier"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// App is an assembled engine plus the store it reads from.
type App struct {
	Engine *engine.Engine
	Store  *policy.Store

	logger     *zap.Logger
	policyFile string
	watch      bool
}

// Build loads the policy table, the classifier rules and the advisory
// thresholds named by conf and wires them into an engine.
func Build(logger *zap.Logger, conf *config.Configuration) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		return nil, errors.New("app requires a configuration")
	}

	table := policy.Default()
	if conf.Policy.File != "" {
		t, err := policy.LoadFile(conf.Policy.File)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load policy table")
		}
		table = t
	}
	store, err := policy.NewStore(table)
	if err != nil {
		return nil, err
	}

	cls := classifier.Default()
	if conf.Classifier.RulesFile != "" {
		cls, err = classifier.LoadRules(conf.Classifier.RulesFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load classifier rules")
		}
	}

	th, err := conf.Thresholds()
	if err != nil {
		return nil, errors.Wrap(err, "invalid advisory thresholds")
	}
	adv, err := advisory.NewGenerator(th)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build advisory generator")
	}

	eng, err := engine.New(logger, store, cls, adv)
	if err != nil {
		return nil, err
	}

	logger.Info("engine assembled",
		zap.String("op", "app.Build"),
		zap.String("policy_version", table.Version()),
		zap.String("policy_file", conf.Policy.File),
		zap.Int("classifier_rules", len(cls.Rules())),
	)

	return &App{
		Engine:     eng,
		Store:      store,
		logger:     logger,
		policyFile: conf.Policy.File,
		watch:      conf.Policy.Watch,
	}, nil
}

// Watcher returns a watcher that hot-reloads the policy file, or nil when
// the configuration does not ask for one.
func (a *App) Watcher() (*policy.Watcher, error) {
	if !a.watch || a.policyFile == "" {
		return nil, nil
	}
	return policy.NewWatcher(a.logger, a.policyFile, a.Store)
}
