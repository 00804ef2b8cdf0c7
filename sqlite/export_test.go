package sqlite

// IsBusy exposes busy classification to tests.
var IsBusy = isBusy
