package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/maskyy/caketruth/config"
	"github.com/maskyy/caketruth/models"
	"github.com/maskyy/caketruth/policy"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	require.NoError(t, config.Seed(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var userSeq atomic.Int64

func newUser(t *testing.T, db *gorm.DB, role models.RoleID) policy.Principal {
	t.Helper()
	n := userSeq.Add(1)
	u := models.User{
		Email:    fmt.Sprintf("user%d@example.com", n),
		Username: fmt.Sprintf("user%d", n),
		Password: "x",
		RoleID:   role,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&u).Error)
	return policy.Principal{UserID: u.ID, Role: role}
}

func newProduct(t *testing.T, svc *CatalogService, p policy.Principal, name string, calories float64) uint {
	t.Helper()
	view, err := svc.CreateProduct(context.Background(), p, ProductInput{
		Name:     name,
		Calories: &calories,
		Proteins: ptr(10.0),
		Fats:     ptr(5.0),
		Carbs:    ptr(20.0),
	})
	require.NoError(t, err)
	return view.ID
}

// milkInput is a valid product without ethanol.
func milkInput() ProductInput {
	return ProductInput{Name: "Milk", Calories: ptr(60.0), Proteins: ptr(3.2), Fats: ptr(3.5), Carbs: ptr(4.8)}
}

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}
