package db

// Repositories provides access to all database repositories
type Repositories struct {
	ClassifiedItems   *ClassifiedItemRepository
	UserLists         *UserListRepository
	ListEntries       *ListEntryRepository
	FollowedLists     *FollowedListRepository
	FollowedListItems *FollowedListItemRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		ClassifiedItems:   NewClassifiedItemRepository(db),
		UserLists:         NewUserListRepository(db),
		ListEntries:       NewListEntryRepository(db),
		FollowedLists:     NewFollowedListRepository(db),
		FollowedListItems: NewFollowedListItemRepository(db),
	}
}
