package cfg

import (
	"fmt"
	"log"

	"github.com/kpotier/ionpot/pkg/ionpot"
	"github.com/kpotier/ionpot/pkg/planar"
)

// Calculation is an interface that only contains one method: Start. Every
// calculation must have a Start method that will launch the calculation. It
// must be a thread blocking method.
type Calculation interface {
	Start() error
}

// Launch launchs a specific calculation. It is a thread blocking method. The
// parameters required to launch the calculation must be in a file. The
// logger receives the progress of long parses and may be nil.
func Launch(name string, path string, l *log.Logger) error {
	var (
		err error
		cal Calculation
	)

	switch name {
	case ionpot.Type:
		cal, err = ionpot.New(path, l)
	case planar.Type:
		cal, err = planar.New(path, l)
	default:
		return fmt.Errorf("calculation `%s` doesn't exist", name)
	}

	if err != nil {
		return fmt.Errorf("%s: New: %w", name, err)
	}

	err = cal.Start()
	if err != nil {
		return fmt.Errorf("%s: Start: %w", name, err)
	}

	return nil
}
