package postgres

// Retrieval queries. `<=>` is pgvector cosine distance; similarity is
// 1 - distance. ORDER BY distance then id keeps ties in stable catalog order.

const searchRegionsSQL = `
SELECT r.region_id, r.name, r.description,
       1 - (r.embedding <=> $1) AS similarity,
       r.longitude, r.latitude
FROM regions r
ORDER BY r.embedding <=> $1, r.region_id
LIMIT $2
`

const searchActivitiesSQL = `
SELECT a.activity_id, a.name, a.description,
       1 - (a.embedding <=> $1) AS similarity,
       a.price, a.category
FROM activities a
JOIN regions r ON r.region_id = a.region_id
WHERE lower(r.name) LIKE $2
ORDER BY a.embedding <=> $1, a.activity_id
LIMIT $3
`

const searchLandmarksSQL = `
SELECT l.landmark_id, l.name, l.description,
       1 - (l.embedding <=> $1) AS similarity,
       l.price, l.category
FROM landmarks l
JOIN regions r ON r.region_id = l.region_id
WHERE lower(r.name) LIKE $2
ORDER BY l.embedding <=> $1, l.landmark_id
LIMIT $3
`

const listFacilitiesSQL = `
SELECT facility_id, name
FROM facilities
ORDER BY facility_id
`

// One row per (hotel, facility); the repo folds rows into hotels. The
// facility filter is optional: an empty id array keeps every facility row.
const searchHotelsSQL = `
SELECT h.hotel_id, h.name, h.nightly_price, h.longitude, h.latitude,
       f.facility_id, f.name
FROM hotels h
JOIN regions r ON r.region_id = h.region_id
LEFT JOIN hotel_facilities hf ON hf.hotel_id = h.hotel_id
LEFT JOIN facilities f ON f.facility_id = hf.facility_id
WHERE lower(r.name) LIKE $1
  AND (h.nightly_price IS NULL OR h.nightly_price <= $2)
  AND (cardinality($3::bigint[]) = 0 OR hf.facility_id = ANY($3))
ORDER BY h.hotel_id, f.facility_id
`

// Trips carry their own comma-separated region list rather than a region_id,
// so the region filter matches a list element in any position. The four
// patterns cover: sole element, first, middle, last.
const searchTripsSQL = `
SELECT t.trip_id, t.title, t.description, t.region, t.price, t.departs_on,
       t.available_seats, t.duration,
       1 - (t.embedding <=> $1) AS similarity
FROM trips t
WHERE t.is_active
  AND t.available_seats > 0
  AND ($2 = '' OR t.region ILIKE $2 OR t.region ILIKE $3 OR t.region ILIKE $4 OR t.region ILIKE $5)
  AND t.departs_on BETWEEN $6 AND $7
ORDER BY t.embedding <=> $1, t.trip_id
LIMIT $8
`
