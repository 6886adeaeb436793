package errors

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	SQLErrno   uint16 `json:"sql_errno,omitempty"`
	SQLState   string `json:"sql_state,omitempty"`
	SQLMessage string `json:"sql_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		d.SQLErrno = myErr.Number
		d.SQLState = string(myErr.SQLState[:])
		d.SQLMessage = myErr.Message
	}

	return d
}
