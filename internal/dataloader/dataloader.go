package dataloader

import (
	"context"
	"strconv"
	"time"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/graph-gophers/dataloader"
	"github.com/labstack/echo/v4"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders holds the request-scoped batch loaders
type Loaders struct {
	UsersByID *dataloader.Loader
}

// NewLoaders builds loaders backed by users. Missing users resolve to nil without error.
func NewLoaders(users repositories.UserRepository) *Loaders {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]uint, 0, len(keys))
		for _, k := range keys {
			id, err := strconv.ParseUint(k.String(), 10, 64)
			if err == nil {
				ids = append(ids, uint(id))
			}
		}

		results := make([]*dataloader.Result, len(keys))
		found, err := users.GetUsersByIDs(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byID := make(map[string]*models.User, len(found))
		for i := range found {
			byID[strconv.FormatUint(uint64(found[i].ID), 10)] = &found[i]
		}
		// Results must line up with keys
		for i, k := range keys {
			results[i] = &dataloader.Result{Data: byID[k.String()]}
		}
		return results
	}

	return &Loaders{
		UsersByID: dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(time.Millisecond)),
	}
}

// WithLoaders attaches loaders to ctx
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// Middleware injects a fresh set of loaders into every request context
func Middleware(users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(WithLoaders(req.Context(), NewLoaders(users))))
			return next(c)
		}
	}
}

// For returns the loaders in ctx, or nil outside a request
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(key).(*Loaders)
	return l
}

// LoadUsers resolves ids in one batch. Unknown ids are absent from the map.
func (l *Loaders) LoadUsers(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = dataloader.StringKey(strconv.FormatUint(uint64(id), 10))
	}
	values, errs := l.UsersByID.LoadMany(ctx, keys)()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	out := make(map[uint]models.User, len(values))
	for _, v := range values {
		if u, ok := v.(*models.User); ok && u != nil {
			out[u.ID] = *u
		}
	}
	return out, nil
}
