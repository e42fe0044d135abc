package ledger

func toBalanceEntity(m *CreditBalanceModel) *Balance {
	if m == nil {
		return nil
	}

	return &Balance{
		ID:        m.ID,
		UserID:    m.UserID,
		Credits:   m.Credits,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toTransactionEntity(m *CreditTransactionModel) *Transaction {
	if m == nil {
		return nil
	}

	t := &Transaction{
		ID:          m.ID,
		UserID:      m.UserID,
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
	if m.ReferenceID != nil {
		t.ReferenceID = *m.ReferenceID
	}
	if m.IdempotencyKey != nil {
		t.IdempotencyKey = *m.IdempotencyKey
	}
	return t
}

func toTransactionModel(e *Transaction) *CreditTransactionModel {
	if e == nil {
		return nil
	}

	m := &CreditTransactionModel{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.ReferenceID != "" {
		ref := e.ReferenceID
		m.ReferenceID = &ref
	}
	if e.IdempotencyKey != "" {
		key := e.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}
