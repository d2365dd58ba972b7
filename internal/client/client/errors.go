package client

import (
	"fmt"

	"github.com/dmitrijs2005/here/internal/common"
)

// ErrUnavailable reports that the server could not be reached at all.
var ErrUnavailable = fmt.Errorf("server unavailable: %w", common.ErrTransport)
