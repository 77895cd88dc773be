package repositories

// GridforgeDbRepository groups every repository method operating on the
// gridforge database. Split across files by table.
type GridforgeDbRepository struct{}

func NewGridforgeDbRepository() *GridforgeDbRepository {
	return &GridforgeDbRepository{}
}
