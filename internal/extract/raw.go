package extract

import "bytes"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractRaw handles raw SQL, Prisma, and Drizzle migration files: the file
// body verbatim, minus a leading UTF-8 BOM. No warnings are possible.
func extractRaw(content []byte) Result {
	return Result{SQL: string(bytes.TrimPrefix(content, utf8BOM))}
}
