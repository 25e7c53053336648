package dataproducts

import (
	tdb "github.com/starwatch/tom/pkg/db"
	"github.com/starwatch/tom/pkg/utils/rfctime"
)

type Detail struct {
	ProductId     string           `json:"id"`
	TargetId      string           `json:"target"`
	ObservationId *int             `json:"observation,omitempty"`
	Owner         string           `json:"owner"`
	Type          string           `json:"data_product_type"`
	Status        string           `json:"status"`
	Filename      string           `json:"filename"`
	Featured      bool             `json:"featured"`
	Comment       string           `json:"comment,omitempty"`
	Created       *rfctime.RFC3339 `json:"created,omitempty"`
	Modified      *rfctime.RFC3339 `json:"modified,omitempty"`
}

func (d *Detail) Equal(o *Detail) bool {
	if (d == nil) || (o == nil) {
		return (d == nil) && (o == nil)
	}
	return d.ProductId == o.ProductId &&
		d.TargetId == o.TargetId &&
		d.Owner == o.Owner &&
		d.Type == o.Type &&
		d.Status == o.Status &&
		d.Filename == o.Filename &&
		d.Featured == o.Featured &&
		d.Comment == o.Comment
}

func ComposeDetail(p tdb.DataProduct) Detail {
	created := rfctime.New(p.Created)
	modified := rfctime.New(p.Modified)
	return Detail{
		ProductId:     p.ProductId,
		TargetId:      p.TargetId,
		ObservationId: p.ObservationId,
		Owner:         p.Owner,
		Type:          string(p.Type),
		Status:        string(p.Status),
		Filename:      p.Filename,
		Featured:      p.Featured,
		Comment:       p.Comment,
		Created:       &created,
		Modified:      &modified,
	}
}

// UploadResult reports what a data product upload did.
type UploadResult struct {
	Product       Detail `json:"data_product"`
	InsertedRows  int    `json:"inserted_rows"`
	DryRun        bool   `json:"dry_run,omitempty"`
	ProcessorUsed string `json:"processor,omitempty"`
}
