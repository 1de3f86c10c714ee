package main

import (
	"fmt"
	"time"

	"github.com/crosales/comedor/core"
)

// finalizeExpired finalizes every active substitution whose end date has
// passed the cutoff. Failures are reported per substitution so one bad row
// does not block the rest.
func (cli *commandLine) finalizeExpired(cutoff string) error {
	asOf := core.Today()
	if cutoff != "" {
		var err error
		if asOf, err = time.Parse(core.DateLayout, cutoff); err != nil {
			return fmt.Errorf("invalid -fecha %q: want %s", cutoff, core.DateLayout)
		}
	}

	outcomes, err := cli.subSvc.FinalizeExpired(asOf)
	if err != nil {
		return err
	}
	for _, out := range outcomes {
		if out.Err != nil {
			fmt.Printf("%s: %s\n", out.ID, out.Err)
		} else {
			fmt.Printf("%s: finalized\n", out.ID)
		}
	}
	fmt.Printf("%d substitution(s) processed\n", len(outcomes))
	return nil
}
