package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/dom/storyverse/internal/api/respond"
	"github.com/dom/storyverse/internal/domain"
	"github.com/dom/storyverse/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// base carries what every handler needs: the unit-of-work runner and a
// logger for unexpected failures.
type base struct {
	tx  repository.Transactor
	log *slog.Logger
}

func (b *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, b.log, err)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return domain.Validation("Invalid request body", nil)
	}
	return nil
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return validateStruct(dst)
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		return domain.Validation("Validation failed", fields)
	}
	return fmt.Errorf("handlers.validate: %w", err)
}

// fieldRules validates individual values, used for presence-aware patch
// documents that validator cannot walk.
type fieldRules map[string]string

func (f fieldRules) check(name string, value any, rule string) {
	if err := validate.Var(value, rule); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f[name] = verrs[0].Tag()
			return
		}
		f[name] = rule
	}
}

func (f fieldRules) err() error {
	if len(f) == 0 {
		return nil
	}
	return domain.Validation("Validation failed", f)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("Invalid path parameter", map[string]string{name: "int"})
	}
	return id, nil
}

// parsePage reads skip (>= 0, default 0) and limit (1..1000, default 100).
func parsePage(r *http.Request) (repository.Page, error) {
	page := repository.Page{Skip: 0, Limit: defaultLimit}
	fields := fieldRules{}
	q := r.URL.Query()

	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			fields["skip"] = "gte=0"
		} else {
			page.Skip = skip
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			fields["limit"] = "range=1..1000"
		} else {
			page.Limit = limit
		}
	}
	return page, fields.err()
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
