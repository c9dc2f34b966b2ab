package model

// EventLog is one decoded on-chain log, recorded append-only.
// The (BlockNumber, TxnIndex, LogIndex) trio is the primary key and the
// sole duplicate-detection mechanism for replayed scan windows.
type EventLog struct {
	BlockNumber int64   `db:"block_number"`
	TxnIndex    int64   `db:"txn_index"`
	LogIndex    int64   `db:"log_index"`
	BlockTime   int64   `db:"block_time"`
	TxnHash     string  `db:"txn_hash"`
	Address     string  `db:"address"`
	Topic0      string  `db:"topic_0"`
	Topic1      *string `db:"topic_1"`
	Topic2      *string `db:"topic_2"`
	Topic3      *string `db:"topic_3"`
	Data        *string `db:"data"`
}

// LaunchLog is the audit row written once per Launched event.
type LaunchLog struct {
	BlockNumber   int64  `db:"block_number"`
	TxnIndex      int64  `db:"txn_index"`
	LogIndex      int64  `db:"log_index"`
	BlockTime     int64  `db:"block_time"`
	TxnHash       string `db:"txn_hash"`
	TokenAddress  string `db:"token_address"`
	RaisedAddress string `db:"raised_address"`
	PairAddress   string `db:"pair_address"`
	TokenID       int64  `db:"token_id"`
	InitPrice     string `db:"init_price"`
}
