package api

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/warp/bookkeeping-engine/ledger"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

var journalCSVHeader = []string{
	"entry_id", "transaction_id", "date", "reference", "account_code", "account_name", "debit", "credit", "description",
}

// writeJournalCSV streams journal lines in the order given, flushing every
// csvFlushEvery rows.
func writeJournalCSV(w io.Writer, entries []ledger.JournalEntry) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	out := csv.NewWriter(buf)
	out.UseCRLF = true

	if err := out.Write(journalCSVHeader); err != nil {
		return err
	}
	for i, e := range entries {
		row := []string{
			strconv.FormatInt(int64(e.ID), 10),
			strconv.FormatInt(int64(e.TransactionID), 10),
			e.Date.Format(time.DateOnly),
			e.Reference,
			string(e.AccountCode),
			e.AccountName,
			e.DebitAmount.StringFixed(ledger.MoneyPlaces),
			e.CreditAmount.StringFixed(ledger.MoneyPlaces),
			e.Description,
		}
		if err := out.Write(row); err != nil {
			return err
		}
		if (i+1)%csvFlushEvery == 0 {
			out.Flush()
			if err := out.Error(); err != nil {
				return err
			}
		}
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return err
	}
	return buf.Flush()
}
