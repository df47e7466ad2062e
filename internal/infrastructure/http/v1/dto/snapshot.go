// Package dto provides request and response shapes for the read API.
package dto

import (
	"time"

	"cpstock/internal/core/types"
	"cpstock/internal/domain/snapshot"
)

// MovementsResponse is one set of per-movement-type totals.
type MovementsResponse struct {
	SalesQuantity          types.Quantity `json:"salesQuantity"`
	SalesAmount            types.Money    `json:"salesAmount"`
	SalesReturnQuantity    types.Quantity `json:"salesReturnQuantity"`
	SalesReturnAmount      types.Money    `json:"salesReturnAmount"`
	PurchaseQuantity       types.Quantity `json:"purchaseQuantity"`
	PurchaseAmount         types.Money    `json:"purchaseAmount"`
	PurchaseReturnQuantity types.Quantity `json:"purchaseReturnQuantity"`
	PurchaseReturnAmount   types.Money    `json:"purchaseReturnAmount"`
	AdjustmentQuantity     types.Quantity `json:"adjustmentQuantity"`
	AdjustmentAmount       types.Money    `json:"adjustmentAmount"`
	ProcessingQuantity     types.Quantity `json:"processingQuantity"`
	ProcessingAmount       types.Money    `json:"processingAmount"`
	TransferQuantity       types.Quantity `json:"transferQuantity"`
	TransferAmount         types.Money    `json:"transferAmount"`
	ReceiptQuantity        types.Quantity `json:"receiptQuantity"`
	ReceiptAmount          types.Money    `json:"receiptAmount"`
	ShipmentQuantity       types.Quantity `json:"shipmentQuantity"`
	ShipmentAmount         types.Money    `json:"shipmentAmount"`
	GrossProfit            types.Money    `json:"grossProfit"`
	WalkingAmount          types.Money    `json:"walkingAmount"`
	IncentiveAmount        types.Money    `json:"incentiveAmount"`
}

// SnapshotRowResponse is one snapshot row of the report read.
type SnapshotRowResponse struct {
	ProductCode      string `json:"productCode"`
	GradeCode        string `json:"gradeCode"`
	ClassCode        string `json:"classCode"`
	ShippingMarkCode string `json:"shippingMarkCode"`
	ShippingMarkName string `json:"shippingMarkName"`

	JobDate string `json:"jobDate"`

	ProductName   string      `json:"productName"`
	CategoryCode  string      `json:"categoryCode"`
	UnitCode      string      `json:"unitCode"`
	StandardPrice types.Money `json:"standardPrice"`

	PreviousQuantity  types.Quantity `json:"previousQuantity"`
	PreviousAmount    types.Money    `json:"previousAmount"`
	PreviousUnitPrice types.Money    `json:"previousUnitPrice"`

	DailyFlag string `json:"dailyFlag"`

	Daily MovementsResponse `json:"daily"`

	StockQuantity  types.Quantity `json:"stockQuantity"`
	StockAmount    types.Money    `json:"stockAmount"`
	StockUnitPrice types.Money    `json:"stockUnitPrice"`

	Monthly MovementsResponse `json:"monthly"`

	NetGrossProfit  types.Money `json:"netGrossProfit"`
	LastReceiptDate *time.Time  `json:"lastReceiptDate,omitempty"`
}

// SnapshotResponse is the report read payload.
type SnapshotResponse struct {
	JobDate string                `json:"jobDate"`
	Count   int                   `json:"count"`
	Rows    []SnapshotRowResponse `json:"rows"`
}

func toMovements(m snapshot.Movements) MovementsResponse {
	return MovementsResponse{
		SalesQuantity:          m.SalesQuantity,
		SalesAmount:            m.SalesAmount,
		SalesReturnQuantity:    m.SalesReturnQuantity,
		SalesReturnAmount:      m.SalesReturnAmount,
		PurchaseQuantity:       m.PurchaseQuantity,
		PurchaseAmount:         m.PurchaseAmount,
		PurchaseReturnQuantity: m.PurchaseReturnQuantity,
		PurchaseReturnAmount:   m.PurchaseReturnAmount,
		AdjustmentQuantity:     m.AdjustmentQuantity,
		AdjustmentAmount:       m.AdjustmentAmount,
		ProcessingQuantity:     m.ProcessingQuantity,
		ProcessingAmount:       m.ProcessingAmount,
		TransferQuantity:       m.TransferQuantity,
		TransferAmount:         m.TransferAmount,
		ReceiptQuantity:        m.ReceiptQuantity,
		ReceiptAmount:          m.ReceiptAmount,
		ShipmentQuantity:       m.ShipmentQuantity,
		ShipmentAmount:         m.ShipmentAmount,
		GrossProfit:            m.GrossProfit,
		WalkingAmount:          m.WalkingAmount,
		IncentiveAmount:        m.IncentiveAmount,
	}
}

// FromSnapshotRows maps domain rows to the response shape.
func FromSnapshotRows(jobDate time.Time, rows []snapshot.Row) SnapshotResponse {
	out := SnapshotResponse{
		JobDate: jobDate.Format("2006-01-02"),
		Count:   len(rows),
		Rows:    make([]SnapshotRowResponse, 0, len(rows)),
	}
	for _, r := range rows {
		out.Rows = append(out.Rows, SnapshotRowResponse{
			ProductCode:      r.Key.ProductCode(),
			GradeCode:        r.Key.GradeCode(),
			ClassCode:        r.Key.ClassCode(),
			ShippingMarkCode: r.Key.ShippingMarkCode(),
			ShippingMarkName: r.Key.ShippingMarkName(),

			JobDate: r.JobDate.Format("2006-01-02"),

			ProductName:   r.ProductName,
			CategoryCode:  r.CategoryCode,
			UnitCode:      r.UnitCode,
			StandardPrice: r.StandardPrice,

			PreviousQuantity:  r.PreviousQuantity,
			PreviousAmount:    r.PreviousAmount,
			PreviousUnitPrice: r.PreviousUnitPrice,

			DailyFlag: string(rune(r.DailyFlag)),

			Daily: toMovements(r.Daily),

			StockQuantity:  r.StockQuantity,
			StockAmount:    r.StockAmount,
			StockUnitPrice: r.StockUnitPrice,

			Monthly: toMovements(r.Monthly),

			NetGrossProfit:  r.NetGrossProfit(),
			LastReceiptDate: r.LastReceiptDate,
		})
	}
	return out
}
