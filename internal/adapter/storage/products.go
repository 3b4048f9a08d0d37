package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/pcbuild/internal/core/domain"
	"github.com/niksmo/pcbuild/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)
var _ port.CatalogReader = (*ProductsRepository)(nil)

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) StoreProducts(
	ctx context.Context, vs []domain.Product,
) (storeErr error) {
	const op = "ProductsRepository.StoreProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit %w", op, err)
			}
			return
		}

		err := tx.Rollback()
		if err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	query := `
		INSERT INTO products (
			product_id, name, model_no, brand, category, description,
			price, discount_price, on_discount, stock, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (product_id) DO UPDATE SET
			name = EXCLUDED.name,
			model_no = EXCLUDED.model_no,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			discount_price = EXCLUDED.discount_price,
			on_discount = EXCLUDED.on_discount,
			stock = EXCLUDED.stock,
			updated_at = EXCLUDED.updated_at;
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, v := range vs {
		_, err := stmt.ExecContext(ctx,
			v.ProductID, v.Name, v.ModelNo, v.Brand, string(v.Category),
			v.Description, v.Price, v.DiscountPrice, v.OnDiscount, v.Stock,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec: %w", op, err)
		}
	}

	return nil
}

// ListProducts returns the whole catalog ordered by product id.
func (r ProductsRepository) ListProducts(
	ctx context.Context,
) (vs []domain.Product, err error) {
	const op = "ProductsRepository.ListProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT
			product_id, name, model_no, brand, category, description,
			price, discount_price, on_discount, stock
		FROM products
		ORDER BY product_id ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", "err", err)
		}
	}()

	for rows.Next() {
		var (
			v        domain.Product
			category string
		)
		err := rows.Scan(
			&v.ProductID, &v.Name, &v.ModelNo, &v.Brand, &category,
			&v.Description, &v.Price, &v.DiscountPrice, &v.OnDiscount, &v.Stock,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan: %w", op, err)
		}
		v.Category = domain.Category(category)
		vs = append(vs, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vs, nil
}
