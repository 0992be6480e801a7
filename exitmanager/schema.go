package exitmanager

// exitId and utxoPos are decimal strings, owner/currency/txHash hex without 0x.
var exitsTable = `CREATE TABLE IF NOT EXISTS exits (
	exitId VARCHAR(49) PRIMARY KEY NOT NULL,
	kind VARCHAR(10) NOT NULL,
	status VARCHAR(20) NOT NULL,
	owner CHAR(40) NOT NULL,
	currency CHAR(40) NOT NULL,
	utxoPos VARCHAR(78) NOT NULL,
	txBytes BLOB NOT NULL,
	outputIndex INTEGER NOT NULL,
	txHash CHAR(64) NOT NULL,
	exitableAt INTEGER NOT NULL,
	CONSTRAINT chk_kind CHECK (kind IN ('standard', 'in_flight')),
	CONSTRAINT chk_status CHECK (status IN ('unexited', 'exit_queued', 'in_flight_started', 'piggybacked', 'exit_processed'))
);
CREATE INDEX IF NOT EXISTS idx_exits_owner ON exits (owner);`
