package db

type TomDatabase interface {
	Targets() TargetInterface
	TargetLists() TargetListInterface
	DataProducts() DataProductInterface
	Datums() DatumInterface
	Cadences() CadenceInterface
	Observations() ObservationInterface
	Users() UserInterface
	Groups() GroupInterface
	Schema() SchemaInterface
	Close() error
}
