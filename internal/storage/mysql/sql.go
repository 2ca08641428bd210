package mysql

const selectHotelCols = `SELECT id, name, price, latitude, longitude, created_at, updated_at FROM hotels`

const getHotelSQL = selectHotelCols + ` WHERE id = ?`

const listHotelsSQL = selectHotelCols + ` ORDER BY created_at, id`

const insertHotelSQL = `
INSERT INTO hotels
  (id, name, price, latitude, longitude, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?)
`

// Plain UPDATE, no upsert: a missing row is reported as not found.
const updateHotelSQL = `
UPDATE hotels
SET name = ?, price = ?, latitude = ?, longitude = ?, updated_at = ?
WHERE id = ?
`

const deleteHotelSQL = `DELETE FROM hotels WHERE id = ?`

const existsHotelSQL = `SELECT EXISTS(SELECT 1 FROM hotels WHERE id = ?)`

// name uses a case-insensitive collation (utf8mb4_0900_as_ci).
// The exclusion parameter is passed twice; NULL disables it.
const existsByNameAndLocationSQL = `
SELECT EXISTS(
  SELECT 1
  FROM hotels
  WHERE name = ?
    AND ABS(latitude - ?) < ?
    AND ABS(longitude - ?) < ?
    AND (? IS NULL OR id <> ?)
)
`
