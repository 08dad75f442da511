package dbtest

// SQLite renditions of the goose migrations; column names and nullability
// match pkg/migrate/migrations.

const Stores = `
CREATE TABLE stores (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  owner_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  zip_code TEXT NOT NULL,
  lat REAL,
  lng REAL,
  is_order INTEGER NOT NULL DEFAULT 0,
  is_product INTEGER NOT NULL DEFAULT 0,
  registration_ref TEXT NOT NULL UNIQUE,
  approval_status TEXT NOT NULL,
  rejection_reason TEXT,
  approved_at DATETIME,
  approved_by TEXT,
  credit_limit_cents INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`

const Users = `
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

const Members = `
CREATE TABLE members (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  status TEXT NOT NULL,
  can_manage_orders INTEGER NOT NULL DEFAULT 0,
  can_manage_finance INTEGER NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

const MemberActivity = `
CREATE TABLE member_activity_log (
  id TEXT PRIMARY KEY,
  member_id TEXT NOT NULL,
  actor_id TEXT NOT NULL,
  action TEXT NOT NULL,
  diff TEXT,
  created_at DATETIME
);`

const Products = `
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  unit TEXT NOT NULL,
  units_per_box INTEGER NOT NULL DEFAULT 1,
  box_price_cents INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

const Warehouses = `
CREATE TABLE warehouses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  address TEXT NOT NULL,
  lat REAL,
  lng REAL,
  created_at DATETIME,
  updated_at DATETIME
);`

const Vendors = `
CREATE TABLE vendors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT,
  address TEXT NOT NULL,
  lat REAL,
  lng REAL,
  created_at DATETIME,
  updated_at DATETIME
);`

// Orders emulates the order_number sequence with a trigger.
const Orders = `
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL DEFAULT 0,
  store_id TEXT NOT NULL,
  status TEXT NOT NULL,
  billing_address TEXT,
  shipping_address TEXT,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  delivery_date DATETIME,
  notes TEXT,
  created_by TEXT NOT NULL,
  preorder_id TEXT,
  cancelled_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

const OrderNumberTrigger = `
CREATE TRIGGER orders_number AFTER INSERT ON orders
BEGIN
  UPDATE orders SET order_number = (SELECT COALESCE(MAX(order_number), 0) + 1 FROM orders) WHERE id = NEW.id;
END;`

const OrderItems = `
CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  pricing_type TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL
);`

const PreOrders = `
CREATE TABLE preorders (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  billing_address TEXT,
  shipping_address TEXT,
  subtotal_cents INTEGER NOT NULL,
  tax_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  delivery_date DATETIME,
  notes TEXT,
  confirmed INTEGER NOT NULL DEFAULT 0,
  confirmed_at DATETIME,
  converted_order_id TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`

const PreOrderItems = `
CREATE TABLE preorder_items (
  id TEXT PRIMARY KEY,
  preorder_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  pricing_type TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  line_total_cents INTEGER NOT NULL
);`

const Drivers = `
CREATE TABLE drivers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT,
  phone TEXT NOT NULL,
  license_number TEXT NOT NULL,
  license_expiry DATETIME,
  license_state TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

const Trucks = `
CREATE TABLE trucks (
  id TEXT PRIMARY KEY,
  driver_id TEXT NOT NULL,
  number TEXT NOT NULL,
  capacity_weight_kg REAL NOT NULL,
  capacity_volume_m3 REAL NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

const Trips = `
CREATE TABLE trips (
  id TEXT PRIMARY KEY,
  route_from TEXT NOT NULL,
  route_to TEXT NOT NULL,
  stops TEXT,
  trip_date DATETIME NOT NULL,
  driver_id TEXT NOT NULL,
  truck_id TEXT NOT NULL,
  status TEXT NOT NULL,
  total_weight_kg REAL NOT NULL,
  total_volume_m3 REAL NOT NULL,
  distance_meters INTEGER,
  duration_seconds INTEGER,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`

const TripOrders = `
CREATE TABLE trip_orders (
  trip_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  weight_kg REAL NOT NULL,
  volume_m3 REAL NOT NULL,
  position INTEGER NOT NULL,
  PRIMARY KEY (trip_id, order_id)
);`

const RoutePlans = `
CREATE TABLE route_plans (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  stops TEXT,
  distance_meters INTEGER,
  duration_seconds INTEGER,
  trip_id TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`

const Cheques = `
CREATE TABLE cheques (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  cheque_number TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  cheque_date DATETIME NOT NULL,
  status TEXT NOT NULL,
  cleared_date DATETIME,
  bank_reference TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

const Payments = `
CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  method TEXT NOT NULL,
  reference TEXT,
  recorded_by TEXT NOT NULL,
  received_at DATETIME NOT NULL,
  created_at DATETIME
);`

const LedgerEntries = `
CREATE TABLE ledger_entries (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  reference_type TEXT NOT NULL,
  reference_id TEXT NOT NULL,
  description TEXT NOT NULL,
  created_at DATETIME
);`

const Notifications = `
CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  store_id TEXT,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  event_id TEXT,
  read_at DATETIME,
  created_at DATETIME
);`

const LegalDocuments = `
CREATE TABLE legal_documents (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL,
  document_number TEXT,
  file_url TEXT NOT NULL,
  expires_at DATETIME,
  accepted_by TEXT NOT NULL,
  accepted_at DATETIME NOT NULL,
  accepted_ip TEXT NOT NULL,
  verified_by TEXT,
  verified_at DATETIME,
  rejection_reason TEXT,
  expiry_notified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

const InventoryAvailability = `
CREATE TABLE inventory_availability (
  product_id TEXT NOT NULL,
  week TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  updated_at DATETIME,
  PRIMARY KEY (product_id, week)
);`

const WorkOrderPicks = `
CREATE TABLE work_order_picks (
  week TEXT NOT NULL,
  store_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  picked INTEGER NOT NULL,
  seq INTEGER NOT NULL,
  picked_by TEXT,
  updated_at DATETIME,
  PRIMARY KEY (week, store_id, product_id)
);`

const OutboxEvents = `
CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  next_attempt_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
