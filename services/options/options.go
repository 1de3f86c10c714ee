// Package optionsvc adapts the app configuration to the substitution
// service's Options collaborator: the motivo/estado enumerations are supplied
// by deployment configuration, not compiled in.
package optionsvc

import (
	"github.com/crosales/comedor/core"
	"github.com/crosales/comedor/core/substitution"
)

type service struct {
	conf *core.Config
}

var _ substitution.Options = (*service)(nil)

func NewService(conf *core.Config) substitution.Options {
	return &service{conf: conf}
}

func (svc service) Reasons() []string {
	return svc.conf.SubstitutionReasons
}

func (svc service) Statuses() []string {
	return svc.conf.SubstitutionStatuses
}
