// Package server hosts the HTTP surface: signed document previews and a
// read API over movements and tenant accounts, kept current by the change
// feed.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fjacquet/sci-ledger/internal/apperrors"
	"fjacquet/sci-ledger/internal/auth"
	"fjacquet/sci-ledger/internal/blob"
	"fjacquet/sci-ledger/internal/feed"
	"fjacquet/sci-ledger/internal/ledger"
	"fjacquet/sci-ledger/internal/logging"
	"fjacquet/sci-ledger/internal/models"
	"fjacquet/sci-ledger/internal/repository"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Movement is the JSON view of a bank movement.
type Movement struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Label        string `json:"libelle"`
	Debit        string `json:"debit,omitempty"`
	Credit       string `json:"credit,omitempty"`
	Category     string `json:"categorie,omitempty"`
	SubCategory  string `json:"sous_categorie,omitempty"`
	Counterparty string `json:"tiers,omitempty"`
	TenantID     string `json:"tenant_id,omitempty"`
	Source       string `json:"source"`
	Reconciled   bool   `json:"reconciled"`
}

// Server wires the HTTP routes.
type Server struct {
	repo      *repository.Repository
	blobs     *blob.Store
	auth      *auth.Authenticator
	movements *feed.Refresher[models.BankTransaction]
	logger    logging.Logger
	engine    *gin.Engine
}

// New builds the router. The movement list is served from a snapshot that is
// reloaded whenever the movements table changes.
func New(repo *repository.Repository, broker *feed.Broker, blobs *blob.Store, authenticator *auth.Authenticator, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	s := &Server{repo: repo, blobs: blobs, auth: authenticator, logger: logger}
	s.movements = feed.NewRefresher(broker, func(ctx context.Context) ([]models.BankTransaction, error) {
		return repo.ListMovements(ctx, repository.MovementFilter{})
	}, logger, models.TableMovements)
	s.movements.OnRefresh = func(snapshot []models.BankTransaction) {
		logger.Debug("Movement list refreshed", logging.F(logging.FieldCount, len(snapshot)))
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	blobs.Register(engine)

	api := engine.Group("/api", s.requireUser())
	api.GET("/movements", s.listMovements)
	api.GET("/tenants/:id/account", s.tenantAccount)
	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Movements returns the refresher behind /api/movements.
func (s *Server) Movements() *feed.Refresher[models.BankTransaction] { return s.movements }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	go func() {
		if err := s.movements.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Error("Movement refresher stopped")
		}
	}()

	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", logging.F("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			logging.F("method", c.Request.Method),
			logging.F("path", c.Request.URL.Path),
			logging.F("status", c.Writer.Status()),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	}
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		// The local operator fallback is for the CLI only; HTTP callers always
		// present a token.
		session, err := s.auth.ParseToken(c.GetHeader("Authorization"))
		if err == nil {
			err = auth.RequireUser(session)
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.ErrNotSignedIn.Error()})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func (s *Server) listMovements(c *gin.Context) {
	snapshot := s.movements.Snapshot()
	out := make([]Movement, 0, len(snapshot))
	for _, m := range snapshot {
		out = append(out, toMovement(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) tenantAccount(c *gin.Context) {
	stmt, err := ledger.Account(c.Request.Context(), s.repo, c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		s.logger.WithError(err).Error("Failed to build tenant account", logging.F(logging.FieldTenant, c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tenant_id":    stmt.TenantID,
		"from":         stmt.From,
		"to":           stmt.To,
		"opening":      stmt.Opening.StringFixed(2),
		"lines":        stmt.Rows(),
		"total_debit":  stmt.TotalDebit.StringFixed(2),
		"total_credit": stmt.TotalCredit.StringFixed(2),
		"balance":      stmt.Balance.StringFixed(2),
	})
}

func toMovement(m models.BankTransaction) Movement {
	c := m.Classification()
	out := Movement{
		ID:           m.ID,
		Date:         m.Date,
		Label:        m.Label,
		Debit:        models.FormatAmount(m.Debit),
		Credit:       models.FormatAmount(m.Credit),
		Category:     c.Category,
		SubCategory:  c.SubCategory,
		Counterparty: c.Counterparty,
		Source:       string(m.Source),
		Reconciled:   m.Reconciled,
	}
	if m.TenantID != nil {
		out.TenantID = *m.TenantID
	}
	return out
}
