package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// ContextWithTx кладёт открытую транзакцию в контекст.
func ContextWithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext возвращает транзакцию из контекста или nil.
func TxFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txKey{}).(*gorm.DB)
	return tx
}

// Conn возвращает транзакцию из контекста, иначе fallback, привязанный к ctx.
// Внутри транзакции все запросы обязаны идти через неё: у SQLite одно
// соединение, и запрос мимо tx зависнет.
func Conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

// TxManager запускает функции в транзакции GORM.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// InTx выполняет fn в транзакции. Если в ctx уже есть транзакция,
// fn присоединяется к ней: коммит и откат остаются за внешним вызовом.
func (m *TxManager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTx(ctx, tx))
	})
}
