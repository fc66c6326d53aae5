package ports

// PasswordHasher is the one-way hashing primitive used for stored secrets.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}
