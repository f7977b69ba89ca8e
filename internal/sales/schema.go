package sales

// createTablePostgres declares the sales table for PostgreSQL. SERIAL owns the
// sequence sales_id_seq that hands out ids.
const createTablePostgres = `CREATE TABLE sales (
    id               SERIAL PRIMARY KEY,
    order_id         VARCHAR(50),
    product          VARCHAR(100),
    quantity_ordered INTEGER,
    price_each       NUMERIC(10, 2),
    order_date       TIMESTAMP,
    purchase_address TEXT,
    order_city       VARCHAR(100),
    order_state      VARCHAR(50)
)`

// createTableMySQL declares the sales table for MySQL. VARCHAR lengths count
// characters under utf8mb4.
const createTableMySQL = `CREATE TABLE sales (
    id               INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    order_id         VARCHAR(50),
    product          VARCHAR(100),
    quantity_ordered INT,
    price_each       DECIMAL(10, 2),
    order_date       DATETIME(6),
    purchase_address TEXT,
    order_city       VARCHAR(100),
    order_state      VARCHAR(50)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// CreateTableSQL returns the CREATE TABLE statement for the given driver.
func CreateTableSQL(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return createTablePostgres, nil
	case DriverMySQL:
		return createTableMySQL, nil
	default:
		return "", ErrUnknownDriver
	}
}
