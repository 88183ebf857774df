package errors

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrorDump flattens an error chain for logging. It never reaches a client.
type ErrorDump struct {
	TopMessage string
	Code       Code
	Chain      []string
	Store      StoreDetail
}

// StoreDetail is what the document store driver reported, when the chain
// holds a driver error.
type StoreDetail struct {
	Driver     string
	Code       string
	Constraint string
	Table      string
	Column     string
	Detail     string
	Message    string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Store = storeDetail(err)
	return d
}

// Fields renders the dump as log fields. Store fields are only present when a
// driver error was found.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.Store.Driver == "" {
		return fields
	}
	fields["store_driver"] = d.Store.Driver
	fields["store_code"] = d.Store.Code
	fields["store_message"] = d.Store.Message
	for key, value := range map[string]string{
		"store_constraint": d.Store.Constraint,
		"store_table":      d.Store.Table,
		"store_column":     d.Store.Column,
		"store_detail":     d.Store.Detail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

func storeDetail(err error) StoreDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return StoreDetail{
			Driver:     "pgx",
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return StoreDetail{
			Driver:     "pq",
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0 {
		first := writeErr.WriteErrors[0]
		return StoreDetail{Driver: "mongo", Code: strconv.Itoa(first.Code), Message: first.Message}
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return StoreDetail{Driver: "mongo", Code: strconv.Itoa(int(cmdErr.Code)), Detail: cmdErr.Name, Message: cmdErr.Message}
	}

	return StoreDetail{}
}
