package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/reqmatch"
	"github.com/poiesic/reqmatch/ai"
	"github.com/poiesic/reqmatch/ai/hashing"
	"github.com/poiesic/reqmatch/catalogue"
	"github.com/poiesic/reqmatch/core"
)

var standards = []*core.Standard{
	{ID: "ISO27001", Type: "ISO", RefID: "iso-27001", RefName: "Information security management systems"},
	{ID: "NIST", Type: "NIST", RefID: "nist-800-53", RefName: "Security and privacy controls"},
	{ID: "PCI", Type: "PCI", RefID: "pci-dss-4", RefName: "Payment card industry data security"},
	{ID: "GDPR", Type: "EU", RefID: "gdpr", RefName: "General data protection regulation"},
	{ID: "SOC2", Type: "AICPA", RefID: "soc2", RefName: "Trust services criteria"},
}

var requirements = []*core.Requirement{
	{ReferenceID: "ISO27001-A.5.1", Description: "Define and approve an information security policy.", Category: "Governance"},
	{ReferenceID: "ISO27001-A.8.1", Description: "Maintain an inventory of information assets and their owners.", Category: "Asset Management"},
	{ReferenceID: "ISO27001-A.8.24", Description: "Encrypt data at rest using approved cryptographic algorithms.", Category: "Cryptography"},
	{ReferenceID: "ISO27001-A.8.13", Description: "Back up information and test restoration regularly.", Category: "Operations"},
	{ReferenceID: "ISO27001-A.5.24", Description: "Plan and prepare for information security incident management.", Category: "Incident Management"},
	{ReferenceID: "ISO27001-A.6.3", Description: "Provide security awareness training to all personnel.", Category: "People"},
	{ReferenceID: "NIST-AC-2", Description: "Review user accounts and disable inactive accounts.", Category: "Access Control"},
	{ReferenceID: "NIST-AC-7", Description: "Lock accounts after consecutive failed logon attempts.", Category: "Access Control"},
	{ReferenceID: "NIST-AU-2", Description: "Log security relevant events for audit.", Category: "Audit"},
	{ReferenceID: "NIST-AU-11", Description: "Retain audit records for a defined period.", Category: "Audit"},
	{ReferenceID: "NIST-IA-2", Description: "Require multi-factor authentication for privileged accounts.", Category: "Identification"},
	{ReferenceID: "NIST-SC-8", Description: "Protect the confidentiality of transmitted information.", Category: "System Protection"},
	{ReferenceID: "NIST-SC-28", Description: "Protect the confidentiality of information at rest.", Category: "System Protection"},
	{ReferenceID: "NIST-SI-2", Description: "Identify and remediate system flaws in a timely manner.", Category: "System Integrity"},
	{ReferenceID: "PCI-3.5", Description: "Render primary account numbers unreadable wherever stored.", Category: "Cardholder Data"},
	{ReferenceID: "PCI-4.2", Description: "Encrypt cardholder data during transmission over open networks.", Category: "Cardholder Data", ChangeNote: "Strong cryptography now required for all public networks."},
	{ReferenceID: "PCI-8.3", Description: "Require multi-factor authentication for all access into the cardholder data environment.", Category: "Authentication"},
	{ReferenceID: "PCI-10.2", Description: "Log all access to cardholder data.", Category: "Logging"},
	{ReferenceID: "PCI-11.3", Description: "Perform internal and external vulnerability scans quarterly.", Category: "Testing"},
	{ReferenceID: "GDPR-Art.17", Description: "Erase personal data without undue delay on request.", Category: "Data Subject Rights"},
	{ReferenceID: "GDPR-Art.30", Description: "Maintain a record of processing activities.", Category: "Accountability"},
	{ReferenceID: "GDPR-Art.32", Description: "Implement appropriate measures to secure personal data.", Category: "Security"},
	{ReferenceID: "GDPR-Art.33", Description: "Notify the supervisory authority of a personal data breach within 72 hours.", Category: "Breach Notification"},
	{ReferenceID: "SOC2-CC6.1", Description: "Restrict logical access to information assets.", Category: "Logical Access"},
	{ReferenceID: "SOC2-CC7.2", Description: "Monitor system components for anomalies indicative of malicious acts.", Category: "System Operations"},
	{ReferenceID: "SOC2-CC8.1", Description: "Authorize, test and approve changes before deployment.", Category: "Change Management"},
	{ReferenceID: "HIPAA-164.312", Description: "Implement technical safeguards for electronic health information.", Category: "Technical Safeguards"},
}

var (
	seedFileName = flag.String("src", "", "catalogue file of seed data")
	dumpFileName = flag.String("dump", "", "write the seed catalogue to this file")
	dbPath       = flag.String("db", "./reqmatch_db", "database directory")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// chunks returns an iterator over consecutive slices of at most size items.
func chunks[T any](items []T, size int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end]) {
				return
			}
		}
	}
}

// ingestBatched stores every standard, then requirements in batches.
func ingestBatched(ctx context.Context, db *reqmatch.Analyzer, cat *catalogue.Catalogue, batchSize int) error {
	if _, err := db.Ingest(ctx, cat.Standards, nil); err != nil {
		return err
	}
	for batch := range chunks(cat.Requirements, batchSize) {
		result, err := db.Ingest(ctx, nil, batch)
		if err != nil {
			return err
		}
		slog.Info("ingested batch", "requirements", result.Requirements)
	}
	return nil
}

func main() {
	// Determine source of seed data
	cat := &catalogue.Catalogue{Standards: standards, Requirements: requirements}
	if *seedFileName != "" {
		var err error
		cat, err = catalogue.Load(*seedFileName)
		if err != nil {
			panic(err)
		}
	}

	if *dumpFileName != "" {
		f, err := os.Create(*dumpFileName)
		if err != nil {
			panic(err)
		}
		if err := catalogue.Encode(f, cat); err != nil {
			f.Close()
			panic(err)
		}
		if err := f.Close(); err != nil {
			panic(err)
		}
	}

	db, err := reqmatch.Open(*dbPath, reqmatch.WithProvider(hashing.NewProvider(ai.DefaultConfig())))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	// Ingest in batches of 5
	if err := ingestBatched(context.Background(), db, cat, 5); err != nil {
		panic(err)
	}
}
