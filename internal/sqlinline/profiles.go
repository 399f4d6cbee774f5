package sqlinline

const QSelectProfileByID = `--sql 711ef19c-150c-4170-8853-e00481d37e59
select id, coalesce(email, ''), coalesce(username, ''), credits,
       coalesce(avatar_url, ''), coalesce(stripe_customer_id, ''),
       subscription_status, created_at, updated_at
from profiles
where id = $1::uuid
limit 1;
`

const QUpsertProfile = `--sql 6ec71515-c981-4cf9-bb85-d454ff3aa379
insert into profiles (id, username, email, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, now(), now())
on conflict (id) do update set
    username = excluded.username,
    email = excluded.email,
    updated_at = now();
`

const QSyncProfileEmail = `--sql 78cc4703-3c5c-4e86-b19e-4ec7e162bc02
update profiles set email = $2::text, updated_at = now()
where id = $1::uuid and (email is distinct from $2::text);
`

const QUpdateProfileAvatar = `--sql 67cff802-f981-4ffa-9c08-4644066c1cbd
update profiles set avatar_url = $2::text, updated_at = now()
where id = $1::uuid;
`

const QDeleteProfile = `--sql 8c6819bc-6ce6-45eb-934b-272645cc0bf6
delete from profiles where id = $1::uuid;
`

// Conditional decrement: the balance check and the write are one statement,
// so two concurrent requests cannot both pass the check and overspend.
const QDebitCredits = `--sql 6107a0fa-2420-4fa8-9c22-4feb3bdca3d7
update profiles
set credits = credits - $2::int, updated_at = now()
where id = $1::uuid and credits >= $2::int
returning credits + $2::int;
`

// Additive refund. Restores exactly the debited amount without clobbering
// balance writes that landed in between (e.g. a renewal webhook).
const QRefundCredits = `--sql 6ca1b628-aea4-4b0c-bfa0-6e654216ee1b
update profiles
set credits = credits + $2::int, updated_at = now()
where id = $1::uuid;
`

const QSelectCredits = `--sql 1f241ff0-eb06-442b-bf31-668ad542ed25
select credits from profiles where id = $1::uuid limit 1;
`

const QSetCreditsByUser = `--sql 2ec7e644-3db1-471b-85da-344f72ea6d77
update profiles
set credits = $2::int,
    stripe_customer_id = $3::text,
    subscription_status = 'active',
    updated_at = now()
where id = $1::uuid;
`

const QSetCreditsByCustomer = `--sql 4767d9ad-964e-4e60-9ed7-3d23a9ea7b48
update profiles
set credits = $2::int,
    subscription_status = 'active',
    updated_at = now()
where stripe_customer_id = $1::text;
`

const QMarkCanceledByCustomer = `--sql 3ba46120-6228-4643-8c1c-4b209b9904d3
update profiles
set subscription_status = 'canceled', updated_at = now()
where stripe_customer_id = $1::text;
`

const QSelectStripeCustomer = `--sql 14768b65-1c63-422b-b176-a400a093649d
select coalesce(stripe_customer_id, ''), coalesce(email, '')
from profiles
where id = $1::uuid
limit 1;
`
