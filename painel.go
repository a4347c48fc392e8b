// Package painel is a service-visit dashboard for a healthcare provider.
//
// A workbook of realized visits is loaded once, Revenue and Day are derived
// per record, and every page view recomputes KPIs, roll-ups and a top-N
// cross-tab from the records that match the user's exact-match filters.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/painel/dashboard"
//	    "github.com/spektr-org/painel/visits"
//	)
//
//	ds, err := visits.Load(ctx, "Analise_Agosto.xlsx")
//	res, err := dashboard.Execute(ctx, dashboard.DefaultPages()[0], ds.View(),
//	    dashboard.Selection{"unit": "Unidade Centro"},
//	    dashboard.WithTopN(10),
//	)
//
// The engine package is data-agnostic and works over any RecordView; visits
// binds it to the spreadsheet rows. export, render and report turn a page
// result into CSV, Excel, PNG and PDF; server and cmd/painel expose it all
// over HTTP and the command line.
package painel
