package table

import "errors"

var (
	ErrTableFull        = errors.New("table: no seats available")
	ErrAlreadySeated    = errors.New("table: player already seated")
	ErrPlayerNotFound   = errors.New("table: player not found at this table")
	ErrBuyInOutOfRange  = errors.New("table: buy-in outside the table's min/max")
	ErrHandInProgress   = errors.New("table: cannot perform this operation mid-hand")
	ErrTableStopped     = errors.New("table: table is stopped")
)
