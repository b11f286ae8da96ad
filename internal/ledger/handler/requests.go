package handler

import (
	"aidgate/internal/ledger"
	id "aidgate/pkg/domain"
)

// TransferRequest is the wire shape for POST /ledger/transfers.
type TransferRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

func (r TransferRequest) Parse() (sender, recipient id.AccountID, err error) {
	sender, err = id.ParseAccountID(r.Sender)
	if err != nil {
		return id.AccountID{}, id.AccountID{}, err
	}
	recipient, err = id.ParseAccountID(r.Recipient)
	if err != nil {
		return id.AccountID{}, id.AccountID{}, err
	}
	return sender, recipient, nil
}

// MintRequest is the wire shape for POST /ledger/mint.
type MintRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
}

// BatchMintRequest is the wire shape for POST /ledger/mint/batch.
type BatchMintRequest struct {
	Mints []MintRequest `json:"mints"`
}

func (r BatchMintRequest) Parse() ([]ledger.MintRequest, error) {
	out := make([]ledger.MintRequest, 0, len(r.Mints))
	for _, m := range r.Mints {
		recipient, err := id.ParseAccountID(m.Recipient)
		if err != nil {
			return nil, err
		}
		out = append(out, ledger.MintRequest{Recipient: recipient, Amount: m.Amount})
	}
	return out, nil
}

// BurnRequest is the wire shape for POST /ledger/burn.
type BurnRequest struct {
	Holder string `json:"holder"`
	Amount uint64 `json:"amount"`
}

// PauseRequest is the wire shape for POST /ledger/pause.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// BlacklistRequest is the wire shape for POST /ledger/blacklist.
type BlacklistRequest struct {
	Account     string `json:"account"`
	Blacklisted bool   `json:"blacklisted"`
}

// BatchBlacklistRequest is the wire shape for POST /ledger/blacklist/batch.
type BatchBlacklistRequest struct {
	Updates []BlacklistRequest `json:"updates"`
}

func (r BatchBlacklistRequest) Parse() ([]ledger.BlacklistRequest, error) {
	out := make([]ledger.BlacklistRequest, 0, len(r.Updates))
	for _, u := range r.Updates {
		account, err := id.ParseAccountID(u.Account)
		if err != nil {
			return nil, err
		}
		out = append(out, ledger.BlacklistRequest{Account: account, Blacklisted: u.Blacklisted})
	}
	return out, nil
}
