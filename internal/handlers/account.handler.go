package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/fasthttp/router"
	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/services"
	xhttp "github.com/shivamprakash2909/loan-app/pkg/http"
)

type AccountService interface {
	Create(ctx context.Context, req model.AccountCreateRequest) (*model.Account, error)
	Get(ctx context.Context, accountNumber string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
}

type AccountHandler struct {
	svc AccountService
}

func RegisterAccountRoutes(e *router.Group, h *AccountHandler) {
	e.POST("/accounts", h.CreateAccount)
	e.GET("/accounts", h.ListAccounts)
	e.GET("/accounts/{account_number}", h.GetAccount)
}

func NewAccountHandler(svc AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) CreateAccount(ctx *xhttp.RequestCtx) {
	var req model.AccountCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	account, err := h.svc.Create(ctx, req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateAccount) {
			writeError(ctx, 409, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, account)
}

func (h *AccountHandler) GetAccount(ctx *xhttp.RequestCtx) {
	number := param(ctx, "account_number")
	account, err := h.svc.Get(ctx, number)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, account)
}

func (h *AccountHandler) ListAccounts(ctx *xhttp.RequestCtx) {
	accounts, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	if accounts == nil {
		accounts = []*model.Account{}
	}
	writeJSON(ctx, 200, accounts)
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func param(ctx *xhttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}

func queryInt(ctx *xhttp.RequestCtx, key string) (int, bool) {
	v := string(ctx.QueryArgs().Peek(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
