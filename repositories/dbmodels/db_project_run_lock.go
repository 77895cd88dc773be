package dbmodels

const TABLE_PROJECT_RUN_LOCKS = "project_run_locks"
