package config

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS devices (
	name                TEXT PRIMARY KEY,
	type                TEXT NOT NULL DEFAULT 'vaisala-wxt520',
	enabled             INTEGER NOT NULL DEFAULT 1,
	hostname            TEXT,
	port                TEXT,
	serial_device       TEXT,
	baud                INTEGER,
	station_id          INTEGER NOT NULL DEFAULT 0,
	wind_dir_correction INTEGER,
	poll_interval       TEXT
);
CREATE TABLE IF NOT EXISTS controller_configs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	type             TEXT NOT NULL,
	listen_addr      TEXT,
	port             INTEGER,
	pull_from_device TEXT
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens (creating if needed) a SQLite configuration
// database and makes sure the schema exists.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create config schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	devices, err := s.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}

	return &ConfigData{Devices: devices, Controllers: controllers}, nil
}

const deviceColumns = `name, type, enabled, hostname, port, serial_device, baud,
	station_id, wind_dir_correction, poll_interval`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (DeviceData, error) {
	var device DeviceData
	var hostname, port, serialDevice, pollInterval sql.NullString
	var baud, windDirCorrection sql.NullInt64

	err := row.Scan(
		&device.Name, &device.Type, &device.Enabled, &hostname, &port,
		&serialDevice, &baud, &device.StationID, &windDirCorrection, &pollInterval,
	)
	if err != nil {
		return DeviceData{}, err
	}

	device.Hostname = hostname.String
	device.Port = port.String
	device.SerialDevice = serialDevice.String
	device.PollInterval = pollInterval.String
	if baud.Valid {
		device.Baud = int(baud.Int64)
	}
	if windDirCorrection.Valid {
		device.WindDirCorrection = int16(windDirCorrection.Int64)
	}
	device.ApplyDefaults()

	return device, nil
}

// GetDevices returns device configurations from the database
func (s *SQLiteProvider) GetDevices() ([]DeviceData, error) {
	rows, err := s.db.Query(`SELECT ` + deviceColumns + ` FROM devices ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceData
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		devices = append(devices, device)
	}

	return devices, rows.Err()
}

// GetDevice returns a single device by name
func (s *SQLiteProvider) GetDevice(name string) (*DeviceData, error) {
	row := s.db.QueryRow(`SELECT `+deviceColumns+` FROM devices WHERE name = ?`, name)

	device, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device %s: %w", name, err)
	}
	return &device, nil
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := s.db.Query(`
		SELECT type, listen_addr, port, pull_from_device
		FROM controller_configs
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controller ControllerData
		var listenAddr, pullFromDevice sql.NullString
		var port sql.NullInt64

		if err := rows.Scan(&controller.Type, &listenAddr, &port, &pullFromDevice); err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		if controller.Type == ControllerTypeStatus {
			controller.Status = &StatusServerData{
				ListenAddr:     listenAddr.String,
				Port:           int(port.Int64),
				PullFromDevice: pullFromDevice.String,
			}
		}

		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData.
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{"DELETE FROM devices", "DELETE FROM controller_configs"} {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to clear existing config: %w", err)
		}
	}

	for _, device := range configData.Devices {
		if err := insertDevice(tx, &device); err != nil {
			return fmt.Errorf("failed to insert device %s: %w", device.Name, err)
		}
	}

	for _, controller := range configData.Controllers {
		if err := insertController(tx, &controller); err != nil {
			return fmt.Errorf("failed to insert controller %s: %w", controller.Type, err)
		}
	}

	return tx.Commit()
}

// AddDevice inserts a new device.
func (s *SQLiteProvider) AddDevice(device *DeviceData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertDevice(tx, device); err != nil {
		return fmt.Errorf("failed to insert device %s: %w", device.Name, err)
	}
	return tx.Commit()
}

// DeleteDevice removes a device by name.
func (s *SQLiteProvider) DeleteDevice(name string) error {
	result, err := s.db.Exec(`DELETE FROM devices WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete device %s: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return nil
}

func insertDevice(tx *sql.Tx, device *DeviceData) error {
	_, err := tx.Exec(`
		INSERT INTO devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		device.Name, device.Type, device.Enabled, nullString(device.Hostname), nullString(device.Port),
		nullString(device.SerialDevice), device.Baud, device.StationID, device.WindDirCorrection,
		nullString(device.PollInterval),
	)
	return err
}

func insertController(tx *sql.Tx, controller *ControllerData) error {
	var listenAddr, pullFromDevice sql.NullString
	var port sql.NullInt64
	if controller.Status != nil {
		listenAddr = nullString(controller.Status.ListenAddr)
		pullFromDevice = nullString(controller.Status.PullFromDevice)
		port = sql.NullInt64{Int64: int64(controller.Status.Port), Valid: controller.Status.Port != 0}
	}

	_, err := tx.Exec(`
		INSERT INTO controller_configs (type, listen_addr, port, pull_from_device)
		VALUES (?, ?, ?, ?)
	`, controller.Type, listenAddr, port, pullFromDevice)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
