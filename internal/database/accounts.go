package database

import (
	"database/sql"
	"fmt"
)

const accountColumns = `account_id, customer_name, document_id, portfolio, product,
	balance, days_past_due, assigned_agent`

func insertAccounts(tx *sql.Tx, accounts []Account) error {
	stmt, err := tx.Prepare(`INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range accounts {
		if _, err := stmt.Exec(a.AccountID, a.CustomerName, a.DocumentID, a.Portfolio, a.Product,
			a.Balance, a.DaysPastDue, a.AssignedAgent); err != nil {
			return fmt.Errorf("inserting account %s: %w", a.AccountID, err)
		}
	}
	return nil
}

// GetAccounts returns the roster in load order.
func (db *DB) GetAccounts() ([]Account, error) {
	rows, err := db.conn.Query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := scanAccount(rows, &a); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// GetAccountIDs returns the roster account ids in load order.
func (db *DB) GetAccountIDs() ([]string, error) {
	rows, err := db.conn.Query("SELECT account_id FROM accounts ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetAccount returns a single roster account, or nil if it is not staged.
func (db *DB) GetAccount(accountID string) (*Account, error) {
	row := db.conn.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, accountID)
	var a Account
	err := scanAccount(row, &a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner, a *Account) error {
	var name, doc, portfolio, product, balance, dpd, agent sql.NullString
	if err := s.Scan(&a.AccountID, &name, &doc, &portfolio, &product, &balance, &dpd, &agent); err != nil {
		return err
	}
	a.CustomerName = name.String
	a.DocumentID = doc.String
	a.Portfolio = portfolio.String
	a.Product = product.String
	a.Balance = balance.String
	a.DaysPastDue = dpd.String
	a.AssignedAgent = agent.String
	return nil
}
