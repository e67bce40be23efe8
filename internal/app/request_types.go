package app

// PlaceOrderRequest is the input for PlaceOrder and CheckOrder.
type PlaceOrderRequest struct {
	CoffeeID int
	Quantity int // zero means 1
}

func (r PlaceOrderRequest) quantity() int {
	if r.Quantity == 0 {
		return 1
	}
	return r.Quantity
}

// ExportRequest is the input for ExportReport.
type ExportRequest struct {
	Days int
	// To is a directory or an s3://bucket/prefix URL.
	To string
}
